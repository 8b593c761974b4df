// Package atlas4d embeds the Atlas4D observation gateway as a Go library.
//
// The client talks to the PostGIS store directly, with the same filters,
// defaults and error taxonomy as the HTTP API.
//
//	client, err := atlas4d.New(ctx,
//	    atlas4d.WithPostgres("postgres://atlas4d@localhost:5432/atlas4d"),
//	    atlas4d.WithRedis("localhost:6379", ""),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	nearby, _ := client.Observations().List(ctx, atlas4d.ListOptions{
//	    Near: &atlas4d.Point{Lat: 42.5, Lon: 27.46}, RadiusKm: 5,
//	})
//	id, _ := client.Observations().Create(ctx, atlas4d.NewObservation{Lat: 42.5, Lon: 27.46})
//	summary, _ := client.Stats().Summary(ctx)
//
// Errors wrap the exported sentinels; use errors.Is to classify them.
package atlas4d
