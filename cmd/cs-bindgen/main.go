// Command cs-bindgen generates C# bindings for WebAssembly modules that carry
// cs-bindgen declarations.
//
//	cs-bindgen generate geometry.wasm -o Geometry.cs --namespace Acme.Geometry
//	cs-bindgen inspect geometry.wasm -i
//	cs-bindgen wit geometry.wasm
//	cs-bindgen embed geometry.wasm -o geometry.embedded.wasm
package main

func main() {
	Execute()
}
