// Package testsupport builds temp-dir configs and stores for package tests.
package testsupport
