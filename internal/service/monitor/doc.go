// Package monitor implements the detection worker: a fixed-cadence scan loop
// feeding device sightings through the episode tracker and driving the alarm
// controller when presence persists past the trigger threshold.
package monitor
