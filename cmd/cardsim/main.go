// Package main is the entry point for cardsim.
package main

func main() {
	Execute()
}
