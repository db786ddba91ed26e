package main

import (
	"flag"
	"net/http"

	"bottle/server"

	"github.com/gorilla/websocket"
)

var (
	addr     = flag.String("addr", ":9000", "listen address")
	confPath = flag.String("conf", "conf/config.ini", "simulation config file")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func main() {
	flag.Parse()
	upgrader.CheckOrigin = func(r *http.Request) bool {
		return true
	}
	s := server.NewServer(*addr, *confPath, upgrader)
	s.Serve()
}
