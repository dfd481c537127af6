// Package docqa embeds the docqa retrieval pipeline in a Go program:
// query normalization against a domain vocabulary, hybrid semantic and
// keyword search over stored passages, and cited context formatting.
//
// # Quick start
//
//	client, _ := docqa.New(ctx,
//	    docqa.WithRedis("localhost:6379", ""),
//	    docqa.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	_, _ = client.Ingest(ctx, passages)
//	res, _ := client.Retrieve(ctx, "how do I configure postgress?")
//	fmt.Println(res.Context)
//
// Without WithEmbedder the client runs keyword-only retrieval. WithMemory
// keeps passages in process, which is handy for tests and small corpora.
package docqa
