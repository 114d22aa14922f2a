package cmd

import (
	_ "rtunnel/cmd/misc"
	_ "rtunnel/cmd/root"
	_ "rtunnel/cmd/server"
	_ "rtunnel/cmd/service"
)
