// Package patching resolves declared patches into concrete bodies and applies
// them to a working tree.
//
// A Resolver turns one types.PatchSpec into an ordered list of
// types.ResolvedPatchBody values: the inline text, the single fetched file,
// or one body per apply-list entry of a fetched patch archive. Placeholder
// tokens are substituted once the content is final.
//
// An Engine applies bodies strictly in order through a Primitive, stopping
// at the first failure. The tree is not rolled back; whatever earlier bodies
// changed stays changed.
//
// Two primitives are provided. BuiltinPrimitive parses unified diffs with
// go-gitdiff and applies them in memory before writing anything.
// CommandPrimitive runs the external patch tool.
package patching
