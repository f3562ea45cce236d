package cloud

import (
	"github.com/samber/lo"

	"github.com/nerrad567/roomdash/internal/device"
	"github.com/nerrad567/roomdash/internal/infrastructure/config"
)

// inferType classifies a device by the capabilities on its main component.
func inferType(main Component) device.Type {
	switch {
	case main.Has(capAirConditionerMode):
		return device.TypeAC
	case main.Has(capAirPurifierFanMode) || main.Has(capDustSensor):
		return device.TypePurifier
	default:
		return device.TypeDevice
	}
}

// power is absent when the device reports no switch value.
func power(main Component) *bool {
	v := main.String(capSwitch, capSwitch)
	if v == "" {
		return nil
	}
	return device.Bool(v == switchOn)
}

func mode(main Component) string {
	return device.FirstNonEmpty(
		main.String(capAirConditionerMode, capAirConditionerMode),
		main.String(capThermostatMode, capThermostatMode),
		main.String(capOperationMode, capOperationMode),
		main.directString(capOperationMode),
	)
}

func tempSet(main Component) *float64 {
	v, _ := lo.Coalesce(
		main.Number(capCoolingSetpoint, attrCoolingSetpoint),
		main.Number(capThermostatSetpoint, capThermostatSetpoint),
	)
	return v
}

func tempCur(main Component) *float64 {
	return main.Number(capTemperature, attrTemperature)
}

func roomName(d Device, defaults config.DefaultsConfig) string {
	var upstream string
	if d.Room != nil {
		upstream = d.Room.Name
	}
	return device.FirstNonEmpty(upstream, defaults.RoomName)
}

func displayName(d Device, defaults config.DefaultsConfig) string {
	return device.FirstNonEmpty(d.Label, d.Name, defaults.DeviceName, d.DeviceID)
}

// toRoomDevice maps a listing entry and its status onto a RoomDevice.
func toRoomDevice(d Device, status Status, defaults config.DefaultsConfig, updatedAt string) device.RoomDevice {
	main := status.Main()
	return device.RoomDevice{
		ID:        d.DeviceID,
		Type:      inferType(main),
		Name:      displayName(d, defaults),
		Room:      roomName(d, defaults),
		Power:     power(main),
		Mode:      mode(main),
		TempSet:   tempSet(main),
		TempCur:   tempCur(main),
		UpdatedAt: updatedAt,
	}
}

// toSummary maps a listing entry onto the diagnostic snapshot record.
func toSummary(d Device, defaults config.DefaultsConfig) device.Summary {
	var profile, ocf string
	if d.Profile != nil {
		profile = d.Profile.Name
	}
	if d.OCF != nil {
		ocf = d.OCF.DeviceType
	}
	return device.Summary{
		ID:   d.DeviceID,
		Name: displayName(d, defaults),
		Room: roomName(d, defaults),
		Type: device.FirstNonEmpty(profile, ocf, defaultSummaryType),
	}
}
