// Command grammarctl is the operator tool: dry-run a text against LanguageTool
// and manage the allow-list without going through chat.
package main

func main() {
	Execute()
}
