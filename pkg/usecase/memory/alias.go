package memory

import "context"

// SetAlias records name as an alias of canonical.
func (uc *UseCase) SetAlias(ctx context.Context, name, canonical string) error {
	return uc.names.SetAlias(ctx, name, canonical)
}

// MergeNames repoints every alias of from onto to. The operation is atomic:
// a concurrent resolve sees either the old mapping or the new one.
func (uc *UseCase) MergeNames(ctx context.Context, from, to string) error {
	return uc.names.Merge(ctx, from, to)
}

// ResolveName returns the canonical form of a name, or the name itself when
// no alias is recorded.
func (uc *UseCase) ResolveName(ctx context.Context, name string) string {
	return uc.names.Resolve(ctx, name)
}

// Aliases lists every name that resolves to the given canonical.
func (uc *UseCase) Aliases(ctx context.Context, canonical string) ([]string, error) {
	return uc.names.Aliases(ctx, canonical)
}
