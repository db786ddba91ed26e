package server

import (
	"encoding/json"
	"sync"
	"time"

	"bottle/model"
	"bottle/solver"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Hub wires one websocket connection to one simulation session. Requests come
// in on msg; replies and periodic field pushes go back over the connection.
type Hub struct {
	sim  *solver.Simulation
	conn *websocket.Conn

	// request
	msg chan model.Msg
	// response; the connection has a single writer, handleResponse
	envSet  chan model.Msg
	started chan model.Msg
	stopped chan model.Msg
	field   chan model.Msg

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

func NewHub(conn *websocket.Conn, sim *solver.Simulation) *Hub {
	return &Hub{
		sim:     sim,
		conn:    conn,
		msg:     make(chan model.Msg, 10),
		envSet:  make(chan model.Msg, 10),
		started: make(chan model.Msg, 10),
		stopped: make(chan model.Msg, 10),
		field:   make(chan model.Msg, 10),
		done:    make(chan struct{}),
	}
}

func (h *Hub) handleRequest() {
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.msg:
			switch msg.Type {
			case "env":
				h.applyEnv(msg.Content)
				h.envSet <- model.Msg{Type: "envSet", Content: "env is set"}
			case "start":
				h.mu.Lock()
				if !h.running {
					h.running = true
					h.sim.GetCalcHub().StartSignal()
					go h.sim.Run()
					go h.pushField()
				}
				h.mu.Unlock()
				h.started <- model.Msg{Type: "started"}
			case "set":
				h.applyEnv(msg.Content)
			case "stop":
				h.mu.Lock()
				if h.running {
					h.running = false
					h.sim.GetCalcHub().StopSignal()
				}
				h.mu.Unlock()
				h.stopped <- model.Msg{Type: "stopped", Content: "stopped"}
			default:
				log.WithFields(log.Fields{"type": msg.Type}).Warn("no such type")
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (h *Hub) handleResponse() {
	for {
		select {
		case <-h.done:
			return
		case reply := <-h.envSet:
			h.write(reply)
		case reply := <-h.started:
			h.write(reply)
		case reply := <-h.stopped:
			h.write(reply)
		case reply := <-h.field:
			h.write(reply)
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// pushField forwards committed state whenever the run loop signals a period.
// The first push and every push after a phase flip carry the full "field"
// snapshot; in between, a compact "field_delta" with the encoded temperature
// stream is enough, since positions and phases are unchanged.
func (h *Hub) pushField() {
	hub := h.sim.GetCalcHub()
	lastIce := -1
	for {
		select {
		case <-h.done:
			return
		case <-hub.Stop:
			return
		case <-hub.PeriodCalcResult:
			var msg model.Msg
			delta := h.sim.BuildDelta()
			if delta.IceCells == lastIce {
				data, err := json.Marshal(delta)
				if err != nil {
					log.WithFields(log.Fields{"err": err}).Error("marshal field delta")
					continue
				}
				msg = model.Msg{Type: "field_delta", Content: string(data)}
			} else {
				data, err := json.Marshal(h.sim.BuildData())
				if err != nil {
					log.WithFields(log.Fields{"err": err}).Error("marshal field")
					continue
				}
				msg = model.Msg{Type: "field", Content: string(data)}
				lastIce = delta.IceCells
			}
			select {
			case h.field <- msg:
			default:
				// slow consumer, drop the stale push
			}
		}
	}
}

// applyEnv applies runtime parameter changes; zero values leave the current
// setting alone so a partial "set" works.
func (h *Hub) applyEnv(content string) {
	var env model.Env
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		log.WithFields(log.Fields{"err": err}).Warn("bad env payload")
		return
	}
	if env.IceTemperature != 0 || env.WaterTemperature != 0 || env.AirTemperature != 0 {
		h.sim.SetFillTemperatures(env.IceTemperature, env.WaterTemperature, env.AirTemperature)
	}
	if env.AmbientTemperature != 0 {
		h.sim.SetAmbientTemperature(env.AmbientTemperature)
	}
	if env.WallHeatTransfer != 0 {
		h.sim.SetWallHeatTransfer(env.WallHeatTransfer)
	}
	if env.ConvectionWater != 0 || env.ConvectionAir != 0 {
		h.sim.SetConvectionMultipliers(env.ConvectionWater, env.ConvectionAir)
	}
	if env.TimeScale != 0 {
		h.sim.SetTimeScale(env.TimeScale)
	}
}

func (h *Hub) write(msg model.Msg) {
	if err := h.conn.WriteJSON(&msg); err != nil {
		log.WithFields(log.Fields{"err": err}).Warn("write failed")
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	if h.running {
		h.running = false
		h.sim.GetCalcHub().StopSignal()
	}
	h.mu.Unlock()
	close(h.done)
	h.sim.Close()
}
