// Copyright 2026 Markify Authors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package markify

type registeredConverter struct {
	name      string
	converter DocumentConverter
}

// converterRegistry is an ordered list of converters. Registration prepends,
// so the most recently registered (most specific) converter is tried first.
// Registration must finish before the first dispatch; mutating the registry
// concurrently with dispatch is unsupported.
type converterRegistry struct {
	entries []registeredConverter
}

func (r *converterRegistry) register(name string, c DocumentConverter) {
	r.entries = append([]registeredConverter{{name: name, converter: c}}, r.entries...)
}

// snapshot returns a copy of the current ordering so an in-flight dispatch
// pass is unaffected by later registrations.
func (r *converterRegistry) snapshot() []registeredConverter {
	out := make([]registeredConverter, len(r.entries))
	copy(out, r.entries)
	return out
}
