// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package schedule

import "errors"

// ErrStopped is returned by Wait after Stop.
var ErrStopped = errors.New("schedule: stopped")
