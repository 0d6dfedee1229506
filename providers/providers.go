// Package providers registers every provider with stream_resolver.DefaultProviderRegistry when imported.
package providers

import (
	_ "github.com/alanbriolat/stream-resolver/provider/native"
	_ "github.com/alanbriolat/stream-resolver/provider/youtube"
)
