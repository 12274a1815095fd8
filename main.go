package main

import "github.com/EO-DataHub/eodhp-scim-services/cmd"

func main() {
	cmd.Execute()
}
