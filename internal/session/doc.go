/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package session persists editor sessions. It is a collaborator of the
// curve store, not part of it: everything it writes is read through the
// store's query API and everything it loads goes back in through the
// store's mutation API, in one batch.
//
// On disk a session is a directory holding a human-readable session.json
// manifest (validated against an embedded JSON schema), timestamped
// backups of previous manifests, and a .cvl/index.sqlite database with
// autosave snapshots.
package session
