package joystick

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	fx "github.com/robotalks/mrf.go/pkg/framework"
	"github.com/robotalks/mrf.go/pkg/joystick/device"
	"github.com/robotalks/mrf.go/pkg/l0/comm"
)

const defaultRetryInterval = time.Second

// OpenFunc opens a joystick. It returns nil, nil if there's none.
type OpenFunc func(index int) (device.Device, error)

// Controller converts joystick axes into drive commands. It implements
// driver.CommandSource. When the joystick goes away the command drops
// to stop.
type Controller struct {
	Config Config
	Open   OpenFunc
	Clock  clock.Clock
	// OnChange is called after the command changed.
	OnChange func()

	lock    sync.Mutex
	speed   int
	turn    int
	changed bool
	name    string
	active  bool
}

// NewController creates a Controller.
func NewController(conf Config) *Controller {
	c := &Controller{Config: conf, Clock: clock.New()}
	c.Open = c.openDevice
	return c
}

func (c *Controller) openDevice(index int) (device.Device, error) {
	if index >= 0 {
		return device.Open(index)
	}
	return device.DetectAndOpen(0)
}

// Run implements Runnable. It keeps looking for the joystick and reads
// its events until ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	for {
		js, err := c.Open(c.Config.DeviceIndex)
		switch {
		case errors.Is(err, device.ErrUnsupported):
			glog.Warningf("joystick: %v", err)
			<-ctx.Done()
			return ctx.Err()
		case err != nil:
			glog.V(2).Infof("open joystick error: %v", err)
		case js != nil:
			glog.Infof("joystick %d %q opened", js.Index(), js.Name())
			c.setName(js.Name())
			err = fx.RunWithContextCloser(ctx, js, func() error {
				return c.poll(js)
			})
			c.release()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			glog.Warningf("joystick %d lost: %v", js.Index(), err)
		}
		interval := c.Config.RetryInterval
		if interval <= 0 {
			interval = defaultRetryInterval
		}
		timer := c.Clock.Timer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Controller) poll(js device.Device) error {
	for {
		ev, err := js.ReadEvent()
		if err != nil {
			return err
		}
		c.HandleEvent(ev)
	}
}

// HandleEvent updates the axes from an event.
func (c *Controller) HandleEvent(ev device.Event) {
	if c.Config.Verbose {
		var prefix string
		if ev.IsInit() {
			prefix = "[INIT] "
		}
		switch evt := ev.(type) {
		case device.AxisEvent:
			glog.Infof(prefix+"Axis %d: %d", evt.Index(), evt.Value())
		case device.ButtonEvent:
			glog.Infof(prefix+"Button %d: %v", evt.Index(), evt.Pressed())
		}
	}
	axis, ok := ev.(device.AxisEvent)
	if !ok {
		return
	}
	c.lock.Lock()
	switch axis.Index() {
	case c.Config.SpeedAxis:
		// pushing up reports negative values.
		c.speed = c.scale(-axis.Value(), c.Config.MaxSpeed)
	case c.Config.TurnAxis:
		c.turn = c.scale(axis.Value(), c.Config.MaxAngle)
	default:
		c.lock.Unlock()
		return
	}
	c.changed = true
	c.lock.Unlock()
	c.notify()
}

func (c *Controller) notify() {
	if c.OnChange != nil {
		c.OnChange()
	}
}

func (c *Controller) scale(value, limit int) int {
	if value > -c.Config.Deadzone && value < c.Config.Deadzone {
		return 0
	}
	return value * limit / device.AxisMax
}

func (c *Controller) release() {
	c.lock.Lock()
	c.speed, c.turn, c.changed = 0, 0, true
	c.name, c.active = "", false
	c.lock.Unlock()
	c.notify()
}

func (c *Controller) setName(name string) {
	c.lock.Lock()
	c.name, c.active = name, true
	c.lock.Unlock()
}

// Connected returns the name of the joystick in use.
func (c *Controller) Connected() (string, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.name, c.active
}

// DriveCommand implements driver.CommandSource. ok is true only when the
// axes changed since the last call.
func (c *Controller) DriveCommand() (comm.MotorCommand, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	changed := c.changed
	c.changed = false
	return comm.MotorCommand{Speed: c.speed, Angle: c.turn}, changed
}

var _ fx.Runnable = (*Controller)(nil)
