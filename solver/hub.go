package solver

// CalcHub carries the start/stop/push signalling between the run loop and the
// serving side.
type CalcHub struct {
	Stop             chan struct{}
	PeriodCalcResult chan struct{}
}

func NewCalcHub() *CalcHub {
	return &CalcHub{
		PeriodCalcResult: make(chan struct{}, 1),
	}
}

// PushSignal never blocks the run loop; an unread period signal is simply
// superseded by the next one.
func (ch *CalcHub) PushSignal() {
	select {
	case ch.PeriodCalcResult <- struct{}{}:
	default:
	}
}

func (ch *CalcHub) StartSignal() {
	ch.Stop = make(chan struct{})
}

func (ch *CalcHub) StopSignal() {
	close(ch.Stop)
}
