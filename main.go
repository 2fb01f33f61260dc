package main

import "example.com/backstage/bookings/cmd"

func main() {
	cmd.Execute()
}
