// Package core holds small numeric helpers shared by the filter and
// analysis packages.
package core
