// cmd/vibes/main.go
package main

func main() { Execute() }
