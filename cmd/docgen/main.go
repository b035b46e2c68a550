package main

import "github.com/IrushiGunawardana/dotnet-ai-docgen/internal/cli"

func main() {
	cli.Execute()
}
