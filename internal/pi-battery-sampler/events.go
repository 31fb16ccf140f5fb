package sampler

import (
	"time"

	"github.com/TheCacophonyProject/event-reporter/v3/eventclient"
	"github.com/p3t3r50n-cz/picovina/telemetry"
)

var addEvent = eventclient.AddEvent

func reportCalibration(est telemetry.Estimate, rec telemetry.Record) {
	event := eventclient.Event{
		Timestamp: time.Now(),
		Type:      "batteryCalibration",
		Details: map[string]interface{}{
			"learnedFullCharge":  rec.LearnedFullMicroAh,
			"calibratedAt":       rec.LastCalibration,
			"previousFullCharge": est.ChargeFull,
			"observedCharge":     est.ChargeNow,
			"designCharge":       est.ChargeFullDesign,
			"busVoltage":         est.Reading.BusMilliV,
		},
	}
	if err := addEvent(event); err != nil {
		log.Error("Error sending battery calibration event:", err)
	}
}
