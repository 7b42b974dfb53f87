package plugins

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"justapengu.in/ghostrace/internal/race"
	"justapengu.in/ghostrace/pkg/udp"
)

type fakeControl struct {
	mutex    sync.Mutex
	starts   int
	resets   int
	interval time.Duration
}

func (f *fakeControl) StartRace() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.starts++

	return true
}

func (f *fakeControl) ResetRace() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.resets++
}

func (f *fakeControl) Snapshot() race.Snapshot {
	return race.Snapshot{Tick: 99, Ready: true, Started: true, GhostFrames: 12}
}

func (f *fakeControl) SetUpdateInterval(interval time.Duration) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.interval = interval
}

func readMessage(t *testing.T, conn *net.UDPConn) (udp.Message, *net.UDPAddr) {
	t.Helper()

	buf := make([]byte, 1024)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	n, addr, err := conn.ReadFromUDP(buf)

	if err != nil {
		t.Fatalf("could not read from plugin: %s", err)
	}

	message, err := udp.Decode(buf[:n])

	if err != nil {
		t.Fatalf("could not decode message: %s", err)
	}

	return message, addr
}

func TestUDPPlugin(t *testing.T) {
	ui, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})

	if err != nil {
		t.Fatal(err)
	}

	defer ui.Close()

	plugin, err := NewUDPPlugin(0, ui.LocalAddr().String())

	if err != nil {
		t.Fatal(err)
	}

	control := &fakeControl{}

	if err := plugin.Init(control, logrus.New()); err != nil {
		t.Fatal(err)
	}

	defer plugin.Shutdown()

	message, pluginAddr := readMessage(t, ui)

	if message != udp.Version(udp.ProtocolVersion) {
		t.Errorf("expected version message first, got %#v", message)
	}

	if err := plugin.OnFinish(race.Finish{Winner: race.RoleGhost, Tick: 300, Elapsed: 5 * time.Second}); err != nil {
		t.Fatal(err)
	}

	message, _ = readMessage(t, ui)

	if finish, ok := message.(udp.Finish); !ok || finish.Winner != udp.RoleGhost || finish.ElapsedMilliseconds != 5000 {
		t.Errorf("unexpected finish message: %#v", message)
	}

	if err := plugin.OnCarUpdate(race.CarUpdate{Tick: 3, Role: race.RolePlayer, State: race.CarState{Position: mgl64.Vec3{1, 2, 3}, Speed: 0.5}}); err != nil {
		t.Fatal(err)
	}

	message, _ = readMessage(t, ui)

	if update, ok := message.(udp.CarUpdate); !ok || update.Pos != (udp.Vec{X: 1, Y: 2, Z: 3}) || update.Speed != 0.5 {
		t.Errorf("unexpected car update message: %#v", message)
	}

	for _, command := range []udp.Message{
		udp.StartRace{},
		udp.ResetRace{},
		udp.RealTimePositionInterval{Milliseconds: 250},
		udp.GetRaceState{},
	} {
		if _, err := ui.WriteToUDP(udp.Encode(command).Bytes(), pluginAddr); err != nil {
			t.Fatal(err)
		}
	}

	message, _ = readMessage(t, ui)

	if state, ok := message.(udp.RaceState); !ok || state.Tick != 99 || state.GhostFrames != 12 {
		t.Errorf("unexpected race state message: %#v", message)
	}

	control.mutex.Lock()
	defer control.mutex.Unlock()

	if control.starts != 1 || control.resets != 1 || control.interval != 250*time.Millisecond {
		t.Errorf("commands were not applied: %+v", control)
	}
}
