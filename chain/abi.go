package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ruteri/account-registry/interfaces"
)

// MustParseABI parses a JSON ABI definition. Definitions are compile-time
// constants, so a parse failure is a programming error.
func MustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI definition: %v", err))
	}
	return parsed
}

// Dispatch resolves the method addressed by msg and unpacks its arguments.
// matched is false when the payload carries no selector known to the ABI.
func Dispatch(contractABI *abi.ABI, msg interfaces.Message) (method *abi.Method, args []interface{}, matched bool, err error) {
	sel, ok := msg.Selector()
	if !ok {
		return nil, nil, false, nil
	}

	method, err = contractABI.MethodById(sel)
	if err != nil {
		return nil, nil, false, nil
	}

	args, err = method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return method, nil, true, fmt.Errorf("%w: %s: %v", ErrMalformedCalldata, method.Name, err)
	}
	return method, args, true, nil
}

// EmitEvent packs the non-indexed fields of ev and emits it from addr.
// topics are the indexed fields, in declaration order.
func EmitEvent(host interfaces.Host, addr common.Address, ev abi.Event, topics []common.Hash, fields ...interface{}) error {
	data, err := ev.Inputs.NonIndexed().Pack(fields...)
	if err != nil {
		return fmt.Errorf("could not pack %s event: %w", ev.Name, err)
	}

	host.Emit(&types.Log{
		Address: addr,
		Topics:  append([]common.Hash{ev.ID}, topics...),
		Data:    data,
	})
	return nil
}

// AddressTopic left-pads addr into an indexed event topic.
func AddressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

// FilterLogs returns the logs of logs matching ev, optionally restricted to
// one emitting address.
func FilterLogs(logs []*types.Log, ev abi.Event, emitter *common.Address) []*types.Log {
	var out []*types.Log
	for _, l := range logs {
		if len(l.Topics) == 0 || l.Topics[0] != ev.ID {
			continue
		}
		if emitter != nil && l.Address != *emitter {
			continue
		}
		out = append(out, l)
	}
	return out
}
