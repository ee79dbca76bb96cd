package main

import "github.com/vibast-solutions/ms-go-commerce/cmd"

func main() {
	cmd.Execute()
}
