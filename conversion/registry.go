package conversion

import (
	"sync"

	"github.com/rawbytedev/rttic/rtti"
)

// cStaticCastName is the literal name that Find special-cases to resolve
// straight to the StaticCast singleton without scanning the operation
// table.
const cStaticCastName = "static_cast"

// Operation is the contract every registered conversion operation
// satisfies: named, holding supported-source/destination filters and an
// optional parameter definition, able to produce a ConversionOption for a
// concrete (source, destination) pair.
type Operation interface {
	Name() string
	SupportedSource() SupportedTypes
	SupportedDestination() SupportedTypes
	Parameter() rtti.ParameterDefinition
	GetConversionOption(src, dst rtti.Type) ConversionOption
	Handle() uint16
	NotUsuallyCombinedWith() Operation
}

// BaseOperation implements the common bookkeeping (name, filters,
// parameter, handle) and the default GetConversionOption behavior used by
// operations that expose exactly one fixed ConversionOption. Operations
// whose option depends on the concrete (src,dst) pair embed BaseOperation
// and shadow GetConversionOption.
type BaseOperation struct {
	name           string
	source         SupportedTypes
	destination    SupportedTypes
	parameter      rtti.ParameterDefinition
	singleOption   *ConversionOption
	handle         uint16
	notUsuallyWith Operation
}

func (b *BaseOperation) Name() string                     { return b.name }
func (b *BaseOperation) SupportedSource() SupportedTypes   { return b.source }
func (b *BaseOperation) SupportedDestination() SupportedTypes { return b.destination }
func (b *BaseOperation) Parameter() rtti.ParameterDefinition { return b.parameter }
func (b *BaseOperation) Handle() uint16                   { return b.handle }
func (b *BaseOperation) NotUsuallyCombinedWith() Operation { return b.notUsuallyWith }

// GetConversionOption is the default implementation: if the operation was
// constructed with a fixed single option, return it when (src,dst) match
// and None otherwise. Operations that compute an option per (src,dst)
// override this method entirely.
func (b *BaseOperation) GetConversionOption(src, dst rtti.Type) ConversionOption {
	if b.singleOption == nil {
		return NoneOption()
	}
	if b.singleOption.SourceType.Equal(src) && b.singleOption.DestType.Equal(dst) {
		return *b.singleOption
	}
	return NoneOption()
}

type registryState struct {
	mu         sync.RWMutex
	operations []Operation
	nextHandle uint16
}

var globalRegistry = &registryState{}

// register builds a BaseOperation and assigns it a monotonically
// increasing, stable-for-process-lifetime handle. It does not add anything
// to the process-wide table; Register does that. The registry never
// removes entries.
func register(name string, source, destination SupportedTypes, singleOption *ConversionOption, parameter rtti.ParameterDefinition, notUsuallyWith Operation) *BaseOperation {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	h := globalRegistry.nextHandle
	globalRegistry.nextHandle++
	return &BaseOperation{
		name: name, source: source, destination: destination,
		parameter: parameter, singleOption: singleOption, handle: h,
		notUsuallyWith: notUsuallyWith,
	}
}

// Register adds a fully-constructed Operation to the process-wide table.
// Call this after wrapping a *BaseOperation created by register (or a
// hand-rolled Operation) in whatever type overrides GetConversionOption.
func Register(op Operation) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.operations = append(globalRegistry.operations, op)
}

// RegisteredOperations returns a snapshot slice of every registered
// operation. Safe to call concurrently with Register.
func RegisteredOperations() []Operation {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	out := make([]Operation, len(globalRegistry.operations))
	copy(out, globalRegistry.operations)
	return out
}

// Find looks up a registered operation by name alone, tolerating
// duplicates. The second return value reports whether more than one
// operation shares the name.
func Find(name string) (Operation, bool) {
	if name == cStaticCastName {
		return staticCastSingleton, false
	}
	ops := RegisteredOperations()
	var found Operation
	ambiguous := false
	for _, op := range ops {
		if op.Name() == name {
			if found == nil {
				found = op
			} else {
				ambiguous = true
			}
		}
	}
	return found, ambiguous
}

// findByNameAndFilter looks up a registered operation by name and by its
// declared supported-type filters on both sides, the way a full operation
// descriptor decoded off the wire is matched against the local registry:
// name alone is not authoritative, since a name can be reused for a
// differently-scoped operation across process versions.
func findByNameAndFilter(name string, source, destination SupportedTypes) (Operation, bool) {
	if name == cStaticCastName {
		return staticCastSingleton, true
	}
	for _, op := range RegisteredOperations() {
		if op.Name() == name && op.SupportedSource() == source && op.SupportedDestination() == destination {
			return op, true
		}
	}
	return nil, false
}

// FindForTypes looks up a registered operation by (name, src, dst),
// filtering candidates by non-None GetConversionOption. It returns
// ErrUnknownOperation if nothing matches and ErrAmbiguousOperation if more
// than one candidate accepts the pair.
func FindForTypes(name string, src, dst rtti.Type) (Operation, error) {
	if name == cStaticCastName {
		return staticCastSingleton, nil
	}
	ops := RegisteredOperations()
	var found Operation
	count := 0
	for _, op := range ops {
		if op.Name() != name {
			continue
		}
		if !op.GetConversionOption(src, dst).IsNone() {
			found = op
			count++
		}
	}
	switch count {
	case 0:
		return nil, wrapError(KindUnknownOperation, nil, "no operation named %q converts %s to %s", name, src, dst)
	case 1:
		return found, nil
	default:
		return nil, wrapError(KindAmbiguousOperation, nil, "operation named %q is ambiguous for %s to %s", name, src, dst)
	}
}
