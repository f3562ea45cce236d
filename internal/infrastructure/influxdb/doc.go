// Package influxdb records roomdash climate readings in InfluxDB v2.
//
// Each successful aggregation is written as one room_climate point per device:
//
//	room_climate,id=climate.living_room,type=ac,room=Living\ Room,name=AC power=true,mode="cool",temp_set=22,temp_cur=24.5
//
// Writes go through the non-blocking batched WriteAPI of influxdb-client-go
// at millisecond precision, tagged service=roomdash. Asynchronous write
// failures are logged.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, logger)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // history recording switched off
//	}
//	defer client.Close()
package influxdb
