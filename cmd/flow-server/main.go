package main

import "github.com/mapcviz/profit-flow-backend/internal/app"

func main() {
	app.Run()
}
