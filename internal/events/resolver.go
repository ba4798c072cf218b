package events

import (
	"fmt"

	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/mselser95/metatx-relay/internal/codec"
	"github.com/mselser95/metatx-relay/pkg/types"
)

// FindQuoteFilledEvent scans a transaction's ordered log list for the first
// fill-confirmation event and decodes it. A successful fill transaction
// always emits exactly one, so a missing event is a hard failure: either the
// topic filtering is wrong or the transaction did something unexpected.
func FindQuoteFilledEvent(logs []*gethtypes.Log) (types.QuoteFilledEvent, error) {
	topic := codec.QuoteFilledTopic()

	for _, log := range logs {
		if log == nil || len(log.Topics) == 0 {
			continue
		}
		if log.Topics[0] != topic {
			continue
		}
		return codec.DecodeQuoteFilledLog(log.Data)
	}

	return types.QuoteFilledEvent{}, types.NewRelayError(types.KindEventNotFound,
		"find-quote-filled-event",
		fmt.Sprintf("topic %s absent from %d logs", topic.Hex(), len(logs)), nil)
}
