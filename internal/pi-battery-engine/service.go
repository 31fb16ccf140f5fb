package engine

import (
	"errors"
	"runtime"
	"strings"

	"github.com/godbus/dbus"
	"github.com/godbus/dbus/introspect"
	"github.com/p3t3r50n-cz/picovina/battery"
	"github.com/p3t3r50n-cz/picovina/batteryclient"
)

const (
	dbusName = batteryclient.DBusName
	dbusPath = batteryclient.DBusPath
)

type service struct {
	engine *battery.Engine
}

func startService() (*battery.Engine, error) {
	log.Info("Starting battery service")
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, errors.New("name already taken")
	}

	s := &service{
		engine: battery.NewEngine(&signalEmitter{conn: conn}),
	}
	conn.Export(s, dbusPath, dbusName)
	conn.Export(genIntrospectable(s), dbusPath, "org.freedesktop.DBus.Introspectable")
	return s.engine, nil
}

// Write applies a control batch. It returns the number of bytes consumed,
// which is always the whole batch.
func (s *service) Write(data []byte, offset int64) (int32, *dbus.Error) {
	n, err := s.engine.WriteAt(data, offset)
	if err != nil {
		log.Debugf("Rejected batch: %v", err)
		return 0, makeDbusError(err)
	}
	log.Debugf("Applied %d byte batch", n)
	return int32(n), nil
}

func (s *service) Identify() (string, *dbus.Error) {
	return s.engine.Identify(), nil
}

func (s *service) GetProperty(supply, name string) (dbus.Variant, *dbus.Error) {
	v, err := s.engine.Property(battery.Supply(supply), battery.Property(name))
	if err != nil {
		return dbus.Variant{}, makeDbusError(err)
	}
	return dbus.MakeVariant(v.Interface()), nil
}

func (s *service) GetAll(supply string) (map[string]dbus.Variant, *dbus.Error) {
	fields, err := s.engine.Properties(battery.Supply(supply))
	if err != nil {
		return nil, makeDbusError(err)
	}
	props := make(map[string]dbus.Variant, len(fields))
	for _, f := range fields {
		props[string(f.Property)] = dbus.MakeVariant(f.Value.Interface())
	}
	return props, nil
}

type emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// signalEmitter sends the Changed signal for every supply touched by a write.
type signalEmitter struct {
	conn emitter
}

func (e *signalEmitter) Changed(supply battery.Supply) {
	if err := e.conn.Emit(dbusPath, batteryclient.ChangedSignal, string(supply)); err != nil {
		log.Errorf("Failed to emit change signal for %s: %v", supply, err)
	}
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    dbusName,
			Methods: introspect.Methods(v),
			Signals: []introspect.Signal{{
				Name: "Changed",
				Args: []introspect.Arg{{Name: "supply", Type: "s"}},
			}},
		}},
	}
	return introspect.NewIntrospectable(node)
}

func makeDbusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	var name string
	switch {
	case errors.Is(err, battery.ErrBusy):
		name = batteryclient.BusyErrorName
	case errors.Is(err, battery.ErrProtocol):
		name = batteryclient.ProtocolErrorName
	case errors.Is(err, battery.ErrUnsupportedProperty):
		name = batteryclient.UnsupportedErrorName
	default:
		name = dbusName + "." + getCallerName()
	}
	return &dbus.Error{
		Name: name,
		Body: []interface{}{err.Error()},
	}
}

func getCallerName() string {
	fpcs := make([]uintptr, 1)
	n := runtime.Callers(3, fpcs)
	if n == 0 {
		return ""
	}
	caller := runtime.FuncForPC(fpcs[0] - 1)
	if caller == nil {
		return ""
	}
	funcNames := strings.Split(caller.Name(), ".")
	return funcNames[len(funcNames)-1]
}
