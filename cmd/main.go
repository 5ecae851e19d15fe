package main

import (
	api "github.com/BeckettFrey/RodRoyale"
)

func main() {
	api.Run()
}
