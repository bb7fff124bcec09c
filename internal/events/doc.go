// Package events provides the in-process event channel the shell listens to.
// Publishers never block; slow subscribers lose events instead.
package events
