// Package main is the entry point for arkboot, the regtest bootstrap tool
// that brings an Ark server and client to a funded, settled state.
package main

func main() {
	Execute()
}
