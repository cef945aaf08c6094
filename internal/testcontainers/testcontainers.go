// SPDX-License-Identifier: Apache-2.0

package testcontainers

type cleanup func() error
