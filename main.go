/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/mizutani/convo/cmd"

func main() {
	cmd.Execute()
}
