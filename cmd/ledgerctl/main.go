package main

import "tradeJournal/cmd/ledgerctl/cmd"

func main() {
	cmd.Execute()
}
