package main

import "aper/internal/app/server"

func main() {
	server.Run()
}
