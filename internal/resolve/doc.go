// Package resolve turns a baseline chain and a year horizon into a
// complete parameter schedule.
//
// Resolution starts from the catalogue defaults and layers each reform
// document in chain order. Within a document an override takes effect in
// its own year and carries forward until the document's next override of
// the same parameter. Documents later in the chain overwrite the years
// they touch, from the override year to the end of the horizon.
//
// The resolver trusts its input: run reform.Validate over the chain
// first. Resolution is pure, so the same chain and horizon always
// produce the same schedule.
package resolve
