package server

import (
	"net/http"

	"bottle/model"
	"bottle/solver"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	addr     string
	confPath string
	upgrader websocket.Upgrader
}

func NewServer(addr, confPath string, upgrader websocket.Upgrader) *Server {
	return &Server{
		addr:     addr,
		confPath: confPath,
		upgrader: upgrader,
	}
}

// serveWs handles websocket requests from the peer. Every connection gets its
// own simulation session; independent sessions never share state.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	cfg := solver.LoadConfig(s.confPath)
	sim, err := solver.NewSimulation(cfg)
	if err != nil {
		log.WithFields(log.Fields{"err": err}).Error("cannot create session")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithFields(log.Fields{"err": err}).Error("upgrade failed")
		sim.Close()
		return
	}
	defer conn.Close()

	hub := NewHub(conn, sim)
	go hub.handleRequest()
	go hub.handleResponse()
	for {
		var msg model.Msg
		if err := conn.ReadJSON(&msg); err != nil {
			log.WithFields(log.Fields{"err": err}).Info("connection closed")
			hub.shutdown()
			return
		}
		hub.msg <- msg
	}
}

func (s *Server) Serve() {
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.serveWs(w, r)
	})
	log.WithFields(log.Fields{"addr": s.addr}).Info("serving")
	if err := http.ListenAndServe(s.addr, nil); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}
