// Package batteryclient talks to the battery engine over the system bus.
package batteryclient

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus"
	"github.com/p3t3r50n-cz/picovina/battery"
)

const (
	DBusName = "org.pibattery.Battery"
	DBusPath = "/org/pibattery/Battery"

	ChangedSignal        = DBusName + ".Changed"
	ProtocolErrorName    = DBusName + ".ProtocolError"
	BusyErrorName        = DBusName + ".Busy"
	UnsupportedErrorName = DBusName + ".UnsupportedProperty"
)

func object() (dbus.BusObject, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	return conn.Object(DBusName, DBusPath), nil
}

// Write sends a control batch and returns the number of bytes the engine
// accepted.
func Write(data []byte, offset int64) (int, error) {
	obj, err := object()
	if err != nil {
		return 0, err
	}
	var n int32
	if err := obj.Call(DBusName+".Write", 0, data, offset).Store(&n); err != nil {
		return 0, remoteError(err)
	}
	return int(n), nil
}

func Identify() (string, error) {
	obj, err := object()
	if err != nil {
		return "", err
	}
	var id string
	if err := obj.Call(DBusName+".Identify", 0).Store(&id); err != nil {
		return "", remoteError(err)
	}
	return id, nil
}

// GetProperty reads one property, see battery.Value.Interface for the type.
func GetProperty(supply battery.Supply, prop battery.Property) (interface{}, error) {
	obj, err := object()
	if err != nil {
		return nil, err
	}
	var v dbus.Variant
	if err := obj.Call(DBusName+".GetProperty", 0, string(supply), string(prop)).Store(&v); err != nil {
		return nil, remoteError(err)
	}
	return v.Value(), nil
}

func GetAll(supply battery.Supply) (map[string]interface{}, error) {
	obj, err := object()
	if err != nil {
		return nil, err
	}
	var props map[string]dbus.Variant
	if err := obj.Call(DBusName+".GetAll", 0, string(supply)).Store(&props); err != nil {
		return nil, remoteError(err)
	}
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[k] = v.Value()
	}
	return out, nil
}

// Client submits batches to the engine.
type Client struct{}

func (Client) Submit(b battery.Batch) error {
	data := b.Encode()
	n, err := Write(data, 0)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("engine accepted %d of %d bytes", n, len(data))
	}
	return nil
}

// remoteError maps the engine's D-Bus errors back onto the battery package
// errors so callers can use errors.Is.
func remoteError(err error) error {
	var dbusErr dbus.Error
	if !errors.As(err, &dbusErr) {
		return err
	}
	switch dbusErr.Name {
	case BusyErrorName:
		return fmt.Errorf("%w: %w", battery.ErrProtocol, battery.ErrBusy)
	case ProtocolErrorName:
		return fmt.Errorf("%w: %s", battery.ErrProtocol, errorMessage(dbusErr))
	case UnsupportedErrorName:
		return fmt.Errorf("%w: %s", battery.ErrUnsupportedProperty, errorMessage(dbusErr))
	}
	return err
}

func errorMessage(e dbus.Error) string {
	if len(e.Body) > 0 {
		if msg, ok := e.Body[0].(string); ok {
			return msg
		}
	}
	return e.Name
}
