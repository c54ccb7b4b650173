// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motors

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// softPWM bit-bangs a PWM signal on a plain GPIO pin. The motor driver
// board expects a duty-cycled power pin; not every header pin has a
// hardware PWM channel, so this runs a timing goroutine per motor.
type softPWM struct {
	pin    gpio.PinIO
	period time.Duration

	mu   sync.Mutex
	duty float64

	done chan struct{}
	wg   sync.WaitGroup
}

func newSoftPWM(pin gpio.PinIO, hz int) (*softPWM, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, err
	}
	p := &softPWM{
		pin:    pin,
		period: time.Second / time.Duration(hz),
		done:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p, nil
}

// setDuty changes the duty cycle, in percent [0,100]. Takes effect on
// the next PWM period.
func (p *softPWM) setDuty(duty float64) {
	p.mu.Lock()
	p.duty = duty
	p.mu.Unlock()
}

func (p *softPWM) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			p.pin.Out(gpio.Low)
			return
		default:
		}

		p.mu.Lock()
		duty := p.duty
		p.mu.Unlock()

		on := time.Duration(float64(p.period) * duty / 100)
		off := p.period - on

		if on > 0 {
			p.pin.Out(gpio.High)
			time.Sleep(on)
		}
		if off > 0 {
			p.pin.Out(gpio.Low)
			time.Sleep(off)
		}
	}
}

func (p *softPWM) close() {
	close(p.done)
	p.wg.Wait()
}
