package main

import "i18nextract/internal/cli"

func main() {
	cli.Execute()
}
