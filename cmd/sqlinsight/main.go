package main

import "github.com/luckyjian/sqlinsight/internal/cli"

func main() {
	cli.Execute()
}
