/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package store

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
)

// ThreadAssertionError reports a store mutation attempted off the owner
// goroutine. It indicates a contract violation by a collaborator; the
// store panics with it rather than risking corrupted invariants.
type ThreadAssertionError struct {
	Owner  uint64
	Caller uint64
}

func (e *ThreadAssertionError) Error() string {
	return fmt.Sprintf("store: mutation from goroutine %d, owner is %d", e.Caller, e.Owner)
}

// goid returns the current goroutine id by parsing the stack header.
// Only used for the ownership assertion; never for scheduling decisions.
func goid() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	// header line: "goroutine 123 [running]:"
	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	if i := bytes.IndexByte(buf, ' '); i > 0 {
		buf = buf[:i]
	}
	id, err := strconv.ParseUint(string(buf), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
