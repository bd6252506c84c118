// Package config loads, validates, and writes filemon configuration files.
package config
