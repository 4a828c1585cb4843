package generator

import "strings"

// Helpers shared by every generated file. They are written verbatim into the
// __bindings class; the lines are indented relative to the class body.
const supportHelpers = `internal delegate void FromRawFn<TRaw, T>(TRaw raw, out T value);

internal delegate TRaw IndexFn<TRaw>(RawVec vec, UIntPtr index);

internal static void FromRaw(byte raw, out bool value)
{
    value = raw != 0;
}

internal static void IntoRaw(bool value, out byte raw)
{
    raw = value ? (byte)1 : (byte)0;
}

internal static List<T> CopyRawVec<T>(RawVec raw) where T : unmanaged
{
    var length = (int)raw.Length;
    var result = new List<T>(length);
    var elems = (T*)raw.Ptr.ToPointer();
    for (var i = 0; i < length; i++)
    {
        result.Add(elems[i]);
    }
    return result;
}

internal static List<T> ConvertRawVec<T, TRaw>(RawVec raw, FromRawFn<TRaw, T> convert) where TRaw : unmanaged
{
    var length = (int)raw.Length;
    var result = new List<T>(length);
    var elems = (TRaw*)raw.Ptr.ToPointer();
    for (var i = 0; i < length; i++)
    {
        convert(elems[i], out var item);
        result.Add(item);
    }
    return result;
}

internal static List<T> FromRawVec<T, TRaw>(RawVec raw, IndexFn<TRaw> index, FromRawFn<TRaw, T> convert)
{
    var length = (int)raw.Length;
    var result = new List<T>(length);
    for (var i = 0; i < length; i++)
    {
        convert(index(raw, (UIntPtr)i), out var item);
        result.Add(item);
    }
    return result;
}`

const supportTypes = `[StructLayout(LayoutKind.Sequential)]
internal struct RawVec
{
    public IntPtr Ptr;
    public UIntPtr Length;
    public UIntPtr Capacity;

    public RawVec(IntPtr ptr, UIntPtr length, UIntPtr capacity)
    {
        Ptr = ptr;
        Length = length;
        Capacity = capacity;
    }
}

[StructLayout(LayoutKind.Sequential)]
internal struct RawSlice
{
    public IntPtr Ptr;
    public UIntPtr Length;

    public RawSlice(IntPtr ptr, int length)
    {
        Ptr = ptr;
        Length = (UIntPtr)length;
    }
}`

func writeSupportBindings(w *writer, library, stringFree string) {
	writeExtern(w, library, stringFree, "void", rawVecType+" raw")
	w.blank()
	w.lines(strings.Split(supportHelpers, "\n"))
}

func writeSupportTypes(w *writer) {
	w.lines(strings.Split(supportTypes, "\n"))
}
