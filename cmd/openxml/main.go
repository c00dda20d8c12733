// Command openxml inspects and repacks Office Open XML packages.
package main

func main() {
	execute()
}
