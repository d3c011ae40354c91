/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/imago3d/apiserver/cmd"

func main() {
	cmd.Execute()
}
