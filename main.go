package main

import "socketWhiteboard/cmd/app"

// @title                       Socket Whiteboard API
// @version                     1.0
// @description                 Authentication and whiteboard endpoints of the collaborative whiteboard server.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	app.GetApp().LetsGo()
}
