// This section is for listening to the engine's Changed signals over DBus.

package monitor

import (
	"fmt"
	"io"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/p3t3r50n-cz/picovina/battery"
	"github.com/p3t3r50n-cz/picovina/batteryclient"
)

var getAll = batteryclient.GetAll

func subscribe() (chan *dbus.Signal, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	rule := fmt.Sprintf("type='signal',interface='%s',member='Changed'", batteryclient.DBusName)
	call := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule)
	if call.Err != nil {
		return nil, fmt.Errorf("failed to add match rule: %w", call.Err)
	}

	c := make(chan *dbus.Signal, 10)
	conn.Signal(c)
	return c, nil
}

// signalSupply returns the supply named by a Changed signal.
func signalSupply(s *dbus.Signal) (battery.Supply, bool) {
	if s == nil || s.Name != batteryclient.ChangedSignal {
		return "", false
	}
	if len(s.Body) != 1 {
		log.Errorf("Unexpected signal format in body: %v", s.Body)
		return "", false
	}
	name, ok := s.Body[0].(string)
	if !ok {
		log.Errorf("Unexpected supply type in signal: %T", s.Body[0])
		return "", false
	}
	supply, err := battery.ParseSupply(name)
	if err != nil {
		log.Errorf("Signal for unknown supply: %v", err)
		return "", false
	}
	return supply, true
}

// report writes the current uevent block of a supply to out.
func report(out io.Writer, supply battery.Supply) error {
	props, err := getAll(supply)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", supply, err)
	}
	_, err = io.WriteString(out, formatUevent(supply, props))
	return err
}

// formatUevent renders properties the way the kernel does in a power_supply
// uevent file. Properties missing from props are left out.
func formatUevent(supply battery.Supply, props map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "POWER_SUPPLY_NAME=%s\n", supply)
	for _, p := range battery.SupportedProperties(supply) {
		v, ok := props[string(p)]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "POWER_SUPPLY_%s=%v\n", strings.ToUpper(string(p)), v)
	}
	return b.String()
}

// watch reports every supply named by a signal until the channel closes.
func watch(out io.Writer, signals <-chan *dbus.Signal) {
	for s := range signals {
		supply, ok := signalSupply(s)
		if !ok {
			continue
		}
		log.Debugf("%s changed", supply)
		if err := report(out, supply); err != nil {
			log.Error(err)
			continue
		}
		fmt.Fprintln(out)
	}
}
