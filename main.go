package main

import "timereport/internal/app"

func main() {
	app.Main()
}
