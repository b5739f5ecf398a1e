/*
Package client provides a Go client for the statex HTTP API.

# Quick Start

Connect to a running server and stream an export:

	c, err := client.New(client.Config{
	    BaseURL: "http://localhost:8080",
	    Retries: 2,
	})
	if err != nil {
	    log.Fatal(err)
	}

	f, _ := os.Create("energy.csv")
	defer f.Close()

	_, err = c.Export(context.Background(), f, export.ExportOptions{
	    Format:       export.FormatCSV,
	    StatisticIDs: []string{"sensor.energy"},
	})

List what the server can export:

	stats, err := c.Statistics(context.Background())
	for _, s := range stats {
	    fmt.Println(s.StatisticID, s.Unit)
	}

# Retries

Connection errors and 5xx responses are retried with exponential backoff
(500ms, 1s, 2s, ...) up to Config.Retries times. 4xx responses are returned
immediately with the server's error message.
*/
package client
