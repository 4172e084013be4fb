// Package pipeline turns a job request into an ordered plan of stages and
// runs it. Stages always run in the order detect, loudnorm, volume; each
// stage's precondition is checked when the plan is built, before the encoder
// is invoked for anything.
package pipeline
